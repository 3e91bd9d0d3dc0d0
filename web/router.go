package web

import (
	"fmt"
	"log"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/rabhiso/reader-api/auth"
	"github.com/rabhiso/reader-api/db"
	"github.com/rabhiso/reader-api/dispatch"
	"github.com/rabhiso/reader-api/util"
	"golang.org/x/time/rate"
)

// NewRouter wires the HTTP surface. Reader-scoped paths use the public
// reader-{id} shape; every route behind Authenticate receives the resolved
// principal, never raw credentials.
func NewRouter(conf *util.AppConfig, database *db.DB) *gin.Engine {
	g := gin.Default()
	g.Use(gzip.Gzip(gzip.DefaultCompression))

	// Global rate limiter: 10 requests per second per IP, burst of 20
	globalLimiter := NewRateLimiter(rate.Limit(10), 20)
	g.Use(RateLimitMiddleware(globalLimiter))

	verifier := auth.NewVerifier(conf)
	authn := Authenticate(verifier)
	dispatcher := dispatch.New(database, conf)

	// Stricter rate limit for activity posting: 5 req/sec per IP
	activityLimiter := NewRateLimiter(rate.Limit(5), 10)

	// Max 1MB request body size for mutating endpoints
	maxBodySize := MaxBytesMiddleware(1 * 1024 * 1024) // 1MB

	g.POST("/readers", authn, maxBodySize, func(c *gin.Context) {
		HandleCreateReader(c, database, conf)
	})

	g.GET("/reader-:id", authn, func(c *gin.Context) {
		HandleGetReader(c, database, conf)
	})

	g.POST("/reader-:id/activity", authn, RateLimitMiddleware(activityLimiter), maxBodySize, func(c *gin.Context) {
		HandleCreateActivity(c, dispatcher, database, conf)
	})

	g.GET("/reader-:id/activity", authn, func(c *gin.Context) {
		HandleGetOutbox(c, database, conf)
	})

	g.GET("/reader-:id/library", authn, func(c *gin.Context) {
		HandleGetLibrary(c, database, conf)
	})

	g.GET("/reader-:id/feed", authn, func(c *gin.Context) {
		err, reader := readerFromParam(c, database, "Get Library")
		if err != nil {
			return
		}
		if appErr := dispatch.CheckOwner(Principal(c), reader.Id, "Reader", reader.Id.String(), "Get Library"); appErr != nil {
			abortWithError(c, appErr)
			return
		}

		c.Header("Content-Type", "application/xml; charset=utf-8")

		rss, feedErr := GetLibraryFeed(conf, database, reader)
		if feedErr != nil {
			c.Render(404, render.String{Format: ""})
		} else {
			c.Render(200, render.String{Format: rss})
		}
	})

	g.GET("/activity-:id", authn, func(c *gin.Context) {
		HandleGetActivity(c, database, conf)
	})

	g.GET("/publication-:id", authn, func(c *gin.Context) {
		HandleGetPublication(c, database, conf)
	})

	g.GET("/note-:id", authn, func(c *gin.Context) {
		HandleGetNote(c, database, conf)
	})

	return g
}

func Router(conf *util.AppConfig) error {
	log.Printf("Starting reader API server on %s:%d", conf.Conf.Host, conf.Conf.HttpPort)
	g := NewRouter(conf, db.GetDB())
	err := g.Run(fmt.Sprintf(":%d", conf.Conf.HttpPort))
	if err != nil {
		return err
	}
	return nil
}
