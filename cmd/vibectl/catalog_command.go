package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"vibe-transcode-service/ddd/application/dto"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List job folders known to a running service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.serverURL()
			if err != nil {
				return err
			}
			catalog, err := fetchCatalog(cmd.Context(), base)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, catalog)
			}
			fmt.Fprintln(cmd.OutOrStdout(), catalogTable(catalog))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON instead of a table")
	return cmd
}

func fetchCatalog(ctx context.Context, base string) (*dto.CatalogDTO, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/videos", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &failure)
		return nil, fmt.Errorf("catalog request failed: %s %s", resp.Status, failure.Error)
	}
	var catalog dto.CatalogDTO
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &catalog, nil
}

func catalogTable(c *dto.CatalogDTO) string {
	rows := make([][]string, 0, len(c.Videos))
	for _, v := range c.Videos {
		progress := "-"
		if v.Progress != nil {
			progress = strconv.Itoa(*v.Progress) + "%"
		}
		rows = append(rows, []string{
			v.Folder,
			orDash(v.Status),
			progress,
			derefOrDash(v.URL),
			derefOrDash(v.Thumbnail),
		})
	}
	return renderTable(
		[]string{"Folder", "Status", "Progress", "Playlist", "Thumbnail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

func derefOrDash(s *string) string {
	if s == nil {
		return "-"
	}
	return orDash(*s)
}
