// Command genmock writes synthetic Argo core profile files for local runs of
// argo-etl and for fixtures. Each file is one real-time cycle of the platform.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -files 3 -profiles 4 -levels 50
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	cdfadapter "github.com/couchcryptid/argo-profile-etl/internal/adapter/cdf"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("genmock", flag.ContinueOnError)
	out := fs.String("out", "", "output directory")
	platform := fs.String("platform", "1900001", "platform number (at most 8 characters)")
	files := fs.Int("files", 1, "number of files (one cycle each)")
	profiles := fs.Int("profiles", 2, "profiles per file")
	levels := fs.Int("levels", 20, "levels per profile")
	seed := fs.Uint64("seed", 1, "random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		fs.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}

	for i := range *files {
		path := filepath.Join(*out, fmt.Sprintf("R%s_%03d.nc", *platform, i+1))
		err := cdfadapter.WriteSynthetic(path, cdfadapter.Synthetic{
			Platform: *platform,
			Cycle:    i + 1,
			Profiles: *profiles,
			Levels:   *levels,
			Seed:     *seed + uint64(i),
		})
		if err != nil {
			return err
		}
		fmt.Println(path)
	}
	return nil
}
