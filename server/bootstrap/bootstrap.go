package bootstrap

import (
	"log"
	"time"

	"github.com/opencivics/civicassist/internal/config"
	"github.com/opencivics/civicassist/internal/db"
	"github.com/opencivics/civicassist/internal/interfaces"
	"github.com/opencivics/civicassist/internal/model"
	"github.com/opencivics/civicassist/internal/services"
)

// Options wires the pieces bootstrap prepares before the server
// starts accepting requests.
type Options struct {
	DB        *db.DB
	Catalog   *services.Catalog
	Searcher  *services.Searcher
	Assistant interfaces.AssistantService

	// Fetcher downloads missing model files from the mirror; nil
	// skips downloads and loads whatever is already on disk.
	Fetcher *model.Fetcher
	Models  config.Models

	// SeedFile overrides the embedded services seed.
	SeedFile string
}

// Run seeds the services directory, builds the search index, and
// loads the language model. Every step degrades with a warning; the
// portal serves pages even when the assistant stays offline.
func Run(opts Options) {
	log.Println("🌱 Preparing CivicAssist...")

	if err := opts.Catalog.Seed(opts.SeedFile); err != nil {
		log.Printf("⚠️  Warning: Could not seed services directory: %v", err)
	}

	directory, err := opts.DB.ListServices()
	if err != nil {
		log.Printf("⚠️  Warning: Could not load services directory: %v", err)
	}
	opts.Searcher.Index(directory)
	log.Printf("✓ Services directory ready (%d services)", len(directory))

	if opts.Fetcher != nil {
		fetchModelFiles(opts.Fetcher, opts.Models)
	}

	log.Println("🔍 Loading language model (this can take a while)...")
	start := time.Now()
	if opts.Assistant.InitializeModel() {
		status := opts.Assistant.Status()
		variant := "full precision"
		if status.Quantized {
			variant = "quantized"
		}
		log.Printf("✓ Assistant ready: %s (%s) on %s in %s",
			status.ModelID, variant, status.Device, time.Since(start).Round(time.Second))
		if status.Fallback {
			log.Println("💡 Tip: The preferred model failed to load; the smaller fallback is answering instead")
		}
	} else {
		log.Println("⚠️  Warning: No language model could be loaded; the assistant will reply with a notice")
		log.Println("💡 Tip: Check the model mirror URL and the model directory in the config file")
	}
}

// fetchModelFiles downloads preferred and fallback model files so a
// later fallback load does not depend on the network.
func fetchModelFiles(fetcher *model.Fetcher, models config.Models) {
	for _, id := range []string{models.PreferredID, models.FallbackID} {
		if id == "" {
			continue
		}
		if err := fetcher.Fetch(models.Dir, id); err != nil {
			log.Printf("⚠️  Warning: Could not fetch files for %s: %v", id, err)
		}
	}
}
