package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitServerError  = 3
)

func main() {
	app := &cli.App{
		Name:    "stashctl",
		Usage:   "Administer a running Content Comb server",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Value:   "http://localhost:8080",
				Usage:   "Server base URL",
				EnvVars: []string{"STASH_SERVER"},
			},
			&cli.StringFlag{
				Name:    "api-key",
				Aliases: []string{"k"},
				Usage:   "API access key",
				EnvVars: []string{"API_ACCESS_KEY"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "refresh",
				Usage:  "Refresh sources (all, or one by ID)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "source-id",
						Aliases: []string{"i"},
						Usage:   "Refresh a single source by ID (if not set, refreshes all)",
					},
				},
				Action: refresh,
			},
			{
				Name:  "sources",
				Usage: "Manage registered sources",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List all sources",
						Action: listSources,
					},
					{
						Name:      "add",
						Usage:     "Register a source",
						ArgsUsage: "<url>",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "kind", Value: "rss", Usage: "Source kind (rss, wordpress, youtube, linkedin, facebook)"},
							&cli.StringFlag{Name: "user", Value: "default", Usage: "Owning user ID"},
							&cli.StringFlag{Name: "title", Usage: "Display title"},
							&cli.StringFlag{Name: "category", Usage: "Category label"},
						},
						Action: addSource,
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Import a payload batch from a JSON file (- for stdin)",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "kind", Required: true, Usage: "Source kind of the payloads"},
					&cli.StringFlag{Name: "user", Value: "default", Usage: "Owning user ID"},
				},
				Action: importBatch,
			},
			{
				Name:  "articles",
				Usage: "List stored articles",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Usage: "Filter by user ID"},
					&cli.StringFlag{Name: "kind", Usage: "Filter by source kind"},
					&cli.BoolFlag{Name: "saved", Usage: "Only saved articles"},
					&cli.BoolFlag{Name: "unread", Usage: "Only unread articles"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 50, Usage: "Maximum number of articles"},
				},
				Action: listArticles,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitGeneralError)
	}
}

func refresh(c *cli.Context) error {
	path := "/api/refresh"
	if id := c.String("source-id"); id != "" {
		path += "/" + id
	}
	return call(c, "POST", path, nil)
}

func listSources(c *cli.Context) error {
	return call(c, "GET", "/api/sources", nil)
}

func addSource(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: stashctl sources add <url>", ExitUsageError)
	}

	return call(c, "POST", "/api/sources", map[string]any{
		"user_id":  c.String("user"),
		"kind":     c.String("kind"),
		"url":      c.Args().Get(0),
		"title":    c.String("title"),
		"category": c.String("category"),
	})
}

func importBatch(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: stashctl import --kind <kind> <file>", ExitUsageError)
	}

	var data []byte
	var err error
	if file := c.Args().Get(0); file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to read payloads: %v", err), ExitGeneralError)
	}

	var payloads []map[string]any
	if err := json.Unmarshal(data, &payloads); err != nil {
		return cli.Exit(fmt.Sprintf("Payload file must hold a JSON array of objects: %v", err), ExitUsageError)
	}

	return call(c, "POST", "/api/import", map[string]any{
		"user_id":  c.String("user"),
		"kind":     c.String("kind"),
		"payloads": payloads,
	})
}

func listArticles(c *cli.Context) error {
	path := fmt.Sprintf("/api/articles?limit=%d", c.Int("limit"))
	if user := c.String("user"); user != "" {
		path += "&user_id=" + user
	}
	if kind := c.String("kind"); kind != "" {
		path += "&kind=" + kind
	}
	if c.Bool("saved") {
		path += "&saved=true"
	}
	if c.Bool("unread") {
		path += "&unread=true"
	}
	return call(c, "GET", path, nil)
}

// call performs one API request and prints the raw JSON envelope, so output
// can be piped straight into jq.
func call(c *cli.Context, method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return cli.Exit(err.Error(), ExitGeneralError)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.String("server")+path, reader)
	if err != nil {
		return cli.Exit(err.Error(), ExitGeneralError)
	}
	req.Header.Set("Content-Type", "application/json")
	if key := c.String("api-key"); key != "" {
		req.Header.Set("X-API-Key", key)
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Request failed: %v", err), ExitServerError)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to read response: %v", err), ExitServerError)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		fmt.Println(string(data))
	} else {
		fmt.Println(pretty.String())
	}

	if resp.StatusCode >= 400 {
		return cli.Exit("", ExitServerError)
	}
	return nil
}
