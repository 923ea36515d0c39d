package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

const usage = `usage: marketctl [-server URL] [-token TOKEN] <command> [flags]

commands:
  login   -email E -password P
  search  [-q TEXT] [-category C] [-max-price N] [-supplier S] [-sort KEY]
  order   -offer ID -quantity N [-address A]
  status  -order ID -to STATUS
`

func main() {
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})

	server := flag.String("server", getEnv("MARKET_SERVER", "http://localhost:8080"), "API base URL")
	token := flag.String("token", os.Getenv("MARKET_TOKEN"), "bearer token from login")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	c := NewClient(*server, *token, 15*time.Second)
	out, err := run(c, flag.Arg(0), flag.Args()[1:])
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out)
}

func run(c *Client, command string, args []string) (string, error) {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)

	switch command {
	case "login":
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		if err := fs.Parse(args); err != nil {
			return "", err
		}
		return c.Login(*email, *password)

	case "search":
		q := fs.String("q", "", "text query")
		category := fs.String("category", "", "exact category")
		maxPrice := fs.String("max-price", "", "maximum unit price")
		supplier := fs.String("supplier", "", "supplier name contains")
		sortKey := fs.String("sort", "", "sort key")
		if err := fs.Parse(args); err != nil {
			return "", err
		}
		return c.Search(map[string]string{
			"q":         *q,
			"category":  *category,
			"max_price": *maxPrice,
			"supplier":  *supplier,
			"sort":      *sortKey,
		})

	case "order":
		offer := fs.String("offer", "", "offer id")
		quantity := fs.Int("quantity", 0, "units to order")
		address := fs.String("address", "", "delivery address")
		if err := fs.Parse(args); err != nil {
			return "", err
		}
		return c.PlaceOrder(*offer, *quantity, *address)

	case "status":
		order := fs.String("order", "", "order id")
		to := fs.String("to", "", "target status")
		if err := fs.Parse(args); err != nil {
			return "", err
		}
		return c.UpdateStatus(*order, *to)
	}
	return "", fmt.Errorf("unknown command %q", command)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
