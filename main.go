package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rabhiso/reader-api/db"
	"github.com/rabhiso/reader-api/util"
	"github.com/rabhiso/reader-api/web"
)

func main() {

	conf, err := util.ReadConf()
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Println("Configuration: ")
	fmt.Println(util.PrettyPrint(conf))

	log.Println("Running database migrations...")
	database := db.GetDB()
	log.Println("Database migrations complete")

	s := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.Conf.Host, conf.Conf.HttpPort),
		Handler: web.NewRouter(conf, database),
	}

	startServing(s, conf)
}

func startServing(s *http.Server, conf *util.AppConfig) {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	log.Printf("Starting reader API server on %s:%d", conf.Conf.Host, conf.Conf.HttpPort)
	go func() {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalln(err)
		}
	}()

	<-done
	log.Println("Stopping reader API server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer func() { cancel() }()
	if err := s.Shutdown(ctx); err != nil {
		log.Fatalln(err)
	}
}
