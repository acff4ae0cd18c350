package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jinjor/padsynth/src/audio"
	"github.com/jinjor/padsynth/src/config"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()
	cfg.RegisterFlags(flag.CommandLine)
	numRandom := flag.Int("random", 0, "number of randomized sounds to generate")
	seed := flag.Int64("seed", 1, "seed of the first randomized sound")
	flag.Parse()
	log.SetFlags(log.Lshortfile)

	dir := cfg.TableDir
	if flag.Arg(0) != "" {
		dir = flag.Arg(0)
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	layout, err := audio.NewTableLayout(cfg.TableExponent, cfg.SampleRate, cfg.LowestFrequency)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}

	sounds := map[string]*audio.HarmonicSound{
		"default": audio.NewHarmonicSound("default", nil),
	}
	for i := 0; i < *numRandom; i++ {
		name := fmt.Sprintf("random-%d", *seed+int64(i))
		sound := audio.NewHarmonicSound(name, nil)
		sound.Randomize(audio.NewRandom(*seed + int64(i)))
		sounds[name] = sound
	}

	g, ctx := errgroup.WithContext(context.Background())
	for name, sound := range sounds {
		name, harmonics := name, sound.Harmonics()
		g.Go(func() error {
			return generate(ctx, layout, harmonics, filepath.Join(dir, name+".wt"))
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("Successfully generated wavetables.")
}

func generate(ctx context.Context, layout *audio.TableLayout, harmonics []audio.Harmonic, path string) error {
	pad, err := audio.NewPad(layout)
	if err != nil {
		return err
	}
	set, err := pad.Generate(ctx, harmonics)
	if err != nil {
		return fmt.Errorf("failed to generate %s: %w", path, err)
	}
	log.Printf("generated %s\n", path)
	if err := set.Save(path); err != nil {
		return err
	}
	log.Printf("saved %s\n", path)
	return nil
}
