package web

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/feeds"
	"github.com/rabhiso/reader-api/db"
	"github.com/rabhiso/reader-api/domain"
	"github.com/rabhiso/reader-api/util"
)

// GetLibraryFeed renders a reader's publications as an RSS feed. The feed
// is a private view; the caller has already passed the ownership check.
func GetLibraryFeed(conf *util.AppConfig, database *db.DB, reader *domain.Reader) (string, error) {

	err, pubs := database.ReadPublicationsByReaderId(reader.Id)
	if err != nil {
		log.Println(fmt.Sprintf("Could not get publications for reader %s!", reader.Id), err)
		return "", errors.New("error retrieving publications by reader")
	}

	link := util.ReaderURL(conf, reader.Id) + "/library"

	feed := &feeds.Feed{
		Title:       fmt.Sprintf("Library - %s", reader.Name),
		Link:        &feeds.Link{Href: link},
		Description: fmt.Sprintf("publications of reader %s", reader.Id),
		Author:      &feeds.Author{Name: reader.Name},
		Created:     time.Now(),
	}

	var feedItems []*feeds.Item
	for _, pub := range *pubs {
		feedItems = append(feedItems,
			&feeds.Item{
				Id:      pub.Id.String(),
				Title:   pub.Name,
				Link:    &feeds.Link{Href: util.PublicationURL(conf, pub.Id)},
				Content: pub.Description,
				Author:  &feeds.Author{Name: pub.Author},
				Created: pub.CreatedAt,
			})
	}

	feed.Items = feedItems
	return feed.ToRss()
}
