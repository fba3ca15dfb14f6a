package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/evensia-dev/evensia/internal/sheetdb"
	"github.com/evensia-dev/evensia/pkg/sdk"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
)

func main() {
	var (
		addr      string
		scriptURL string
		dataDir   string
	)

	client := func() *sdk.Client { return sdk.Connect(addr) }

	app := &cli.Command{
		Name:      "evensia",
		Usage:     "Manage an Evensia event site from the command line",
		UsageText: "evensia [global options] command [command options]",
		Version:   fmt.Sprintf("%s (%s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "base URL of the evensia daemon",
				Sources:     cli.EnvVars("EVENSIA_ADDR"),
				Value:       "http://localhost:7801",
				Destination: &addr,
			},
			&cli.StringFlag{
				Name:        "script-url",
				Usage:       "remote record store endpoint for export/import",
				Sources:     cli.EnvVars("EVENSIA_SCRIPT_URL"),
				Destination: &scriptURL,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "embedded record store directory for export/import",
				Sources:     cli.EnvVars("EVENSIA_DATA_DIR"),
				Value:       "./data",
				Destination: &dataDir,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Report daemon and record store health",
				Action: func(ctx context.Context, _ *cli.Command) error {
					c := client()
					authed, err := c.AuthStatus(ctx)
					if err != nil {
						return fmt.Errorf("daemon unreachable: %w", err)
					}
					st, err := c.SheetsStatus(ctx)
					if err != nil {
						return err
					}
					fmt.Printf("daemon:        reachable\n")
					fmt.Printf("authenticated: %v\n", authed)
					fmt.Printf("record store:  %s (%s)\n", st.Status, st.Message)
					return nil
				},
			},
			{
				Name:  "messages",
				Usage: "List RSVP messages",
				Action: func(ctx context.Context, _ *cli.Command) error {
					msgs, err := client().Messages(ctx)
					if err != nil {
						return err
					}
					return printRecords(msgs, []string{"id", "fullname", "is_present", "message", "created_at"})
				},
			},
			{
				Name:      "rsvp",
				Usage:     "Leave an RSVP message",
				UsageText: "evensia rsvp <fullname> [message]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "absent", Usage: "RSVP as not attending"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() < 1 {
						return fmt.Errorf("usage: evensia rsvp <fullname> [message]")
					}
					fullname := c.Args().Get(0)
					message := strings.Join(c.Args().Slice()[1:], " ")
					rec, err := client().SubmitRSVP(ctx, fullname, !c.Bool("absent"), message)
					if err != nil {
						return err
					}
					return printJSON(rec)
				},
			},
			{
				Name:  "photos",
				Usage: "List album records",
				Action: func(ctx context.Context, _ *cli.Command) error {
					photos, err := client().Photos(ctx)
					if err != nil {
						return err
					}
					return printRecords(photos, []string{"id", "from", "caption", "image", "createdAt"})
				},
			},
			{
				Name:      "photo",
				Usage:     "Record an already-public image in the album",
				UsageText: "evensia photo <from> <image-url> <caption>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() < 3 {
						return fmt.Errorf("usage: evensia photo <from> <image-url> <caption>")
					}
					rec, err := client().SubmitPhoto(ctx, c.Args().Get(0), c.Args().Get(1), c.Args().Get(2))
					if err != nil {
						return err
					}
					return printJSON(rec)
				},
			},
			{
				Name:      "upload",
				Usage:     "Upload an image through the relay",
				UsageText: "evensia upload <file> [caption]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "token",
						Usage:   "storage access token",
						Sources: cli.EnvVars("EVENSIA_ACCESS_TOKEN"),
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() < 1 {
						return fmt.Errorf("usage: evensia upload <file> [caption]")
					}
					path := c.Args().Get(0)
					data, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					res, err := client().Upload(ctx, sdk.UploadRequest{
						Filename:    filepath.Base(path),
						ContentType: contentTypeFor(path),
						Caption:     strings.Join(c.Args().Slice()[1:], " "),
						AccessToken: c.String("token"),
						Data:        data,
					})
					if err != nil {
						return err
					}
					return printJSON(res)
				},
			},
			{
				Name:  "export",
				Usage: "Copy sheets from the remote endpoint into the local data directory",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return migrate(ctx, scriptURL, dataDir, false)
				},
			},
			{
				Name:  "import",
				Usage: "Copy sheets from the local data directory to the remote endpoint",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return migrate(ctx, scriptURL, dataDir, true)
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// migrate moves guestbook and album sheets between the embedded store and a
// remote endpoint. toRemote selects the direction.
func migrate(ctx context.Context, scriptURL, dataDir string, toRemote bool) error {
	if scriptURL == "" {
		return fmt.Errorf("--script-url is required")
	}

	remote := sheetdb.NewClient(scriptURL, nil)
	local, store, err := sheetdb.New("", dataDir, zerolog.Nop())
	if err != nil {
		return err
	}

	sheets := []string{sheetdb.SheetMessages, sheetdb.SheetPhotos}
	if toRemote {
		err = sheetdb.Migrate(ctx, local, remote, sheets)
	} else {
		err = sheetdb.Migrate(ctx, remote, local, sheets)
	}
	if err != nil {
		return err
	}

	if store != nil {
		store.Wait()
	}
	fmt.Println("OK")
	return nil
}

func printRecords(records []sdk.Record, columns []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(columns, "\t")))
	for _, rec := range records {
		cells := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := rec[col]; ok {
				cells[i] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return w.Flush()
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
