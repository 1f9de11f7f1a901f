// Command feed is a terminal smoke client for the orders screen: it mounts
// the feed against a running gateway, pages through the history by driving
// the sentinel, and prints each frame.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/shopfront/pkg/client"
	"github.com/example/shopfront/pkg/feed"
	"github.com/example/shopfront/pkg/notify"
	"go.uber.org/zap"
)

type consoleSink struct{}

func (consoleSink) Deliver(n notify.Notification) {
	fmt.Printf("[%s] %s\n", n.Level, n.Message)
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "gateway base URL")
	userID := flag.String("user", "", "user id to browse as")
	rateOrder := flag.String("rate-order", "", "order id to rate a product in")
	rateProduct := flag.String("rate-product", "", "product id to rate")
	stars := flag.Int("stars", 0, "star rating to submit (1-5)")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "missing -user")
		os.Exit(1)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	system := actor.NewActorSystem()
	notifier, err := notify.NewNotifier(system, logger, consoleSink{})
	if err != nil {
		logger.Fatal("Failed to start notifier", zap.Error(err))
	}

	api := client.New(*baseURL, *userID, logger.Named("client"))
	f := feed.New(feed.Options{
		Orders:   api,
		Products: api,
		Ratings:  api,
		Notifier: notifier,
		Logger:   logger.Named("feed"),
	})
	f.SetUser(*userID)

	ctx := context.Background()
	if err := f.Mount(ctx); err != nil {
		logger.Fatal("Initial fetch failed", zap.Error(err))
	}

	// Scroll until the history is exhausted.
	for {
		snapshot := f.Snapshot()
		printSnapshot(snapshot)
		if !snapshot.HasMore {
			break
		}
		if err := f.SentinelVisible(ctx, true); err != nil {
			logger.Fatal("Page fetch failed", zap.Error(err))
		}
		// Re-arm the sentinel for the next page.
		_ = f.SentinelVisible(ctx, false)
	}

	if *rateOrder != "" && *rateProduct != "" && *stars > 0 {
		if err := f.Rate(ctx, *rateOrder, *rateProduct, *stars); err != nil {
			logger.Warn("Rating not submitted", zap.Error(err))
		}
	}
}

func printSnapshot(s feed.Snapshot) {
	if s.Empty {
		fmt.Println("No orders yet. Start shopping!")
		return
	}
	for _, item := range s.Items {
		fmt.Printf("%s  %s  %s  %s\n",
			item.Order.OrderNumber,
			item.Badge.Label,
			item.PaymentBadge.Label,
			feed.FormatAmount(item.Order.TotalAmount))
		for _, line := range item.Lines {
			stars := "unrated"
			if line.Rated {
				stars = fmt.Sprintf("%d stars", line.Rating)
			}
			fmt.Printf("  %dx %s  %s  [%s]\n",
				line.Item.Quantity, line.Item.ProductName,
				feed.FormatAmount(line.Item.LineTotal), stars)
		}
	}
	fmt.Printf("%d of %d orders loaded\n", len(s.Items), s.Total)
	if s.EndOfList {
		fmt.Println("-- end of order history --")
	}
}
