package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/opencivics/civicassist/internal/assistant"
	"github.com/opencivics/civicassist/internal/config"
	"github.com/opencivics/civicassist/internal/hardware"
	"github.com/opencivics/civicassist/internal/model"
)

// modelcheck inspects the host and the model directories, optionally
// downloads missing files, and can ask the assistant one question to
// verify the whole pipeline end to end.
func main() {
	configPath := flag.String("config", config.GetConfigPath(), "Config file path")
	fetch := flag.Bool("fetch", false, "Download missing model files from the mirror")
	ask := flag.String("ask", "", "Ask the assistant one question and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	probe := hardware.NewProbe()

	fmt.Println("CivicAssist model check")
	fmt.Println()
	fmt.Printf("Device:        %s\n", probe.DetectDevice())
	fmt.Printf("Total RAM:     %s\n", humanize.IBytes(probe.TotalRAMMB()*1024*1024))
	fmt.Printf("Available RAM: %s\n", humanize.IBytes(probe.AvailableRAMMB()*1024*1024))
	if model.RecommendQuantized(probe.TotalRAMMB()) {
		fmt.Println("Quantized weights are recommended for this host")
	}
	fmt.Println()

	if *fetch {
		if cfg.Models.MirrorURL == "" {
			log.Fatal("Error: No mirror configured; set models.mirror_url in the config file")
		}
		fetcher := model.NewFetcher(cfg.Models.MirrorURL)
		for _, id := range []string{cfg.Models.PreferredID, cfg.Models.FallbackID} {
			if id == "" {
				continue
			}
			fmt.Printf("Fetching %s...\n", id)
			if err := fetcher.Fetch(cfg.Models.Dir, id); err != nil {
				log.Printf("Warning: %v", err)
			}
		}
		fmt.Println()
	}

	reportModel("Preferred", cfg.Models.PreferredID, cfg.Models)
	reportModel("Fallback", cfg.Models.FallbackID, cfg.Models)

	if *ask != "" {
		runOneShot(cfg, *ask)
	}
}

func reportModel(label, id string, models config.Models) {
	if id == "" {
		return
	}

	dir := model.ModelDir(models.Dir, id)
	fmt.Printf("%s: %s\n", label, id)
	fmt.Printf("  Directory: %s\n", dir)

	for _, quantized := range []bool{false, true} {
		variant := "full precision"
		if quantized {
			variant = "quantized"
		}
		if missing := missingFiles(dir, model.RequiredFiles(quantized)); len(missing) == 0 {
			fmt.Printf("  ✓ %s files present\n", variant)
		} else {
			fmt.Printf("  ✗ %s files missing: %s\n", variant, strings.Join(missing, ", "))
		}
	}

	if size := model.DiskSize(dir); size > 0 {
		fmt.Printf("  On disk: %s\n", humanize.Bytes(uint64(size)))
	}
	fmt.Println()
}

func missingFiles(dir string, names []string) []string {
	var missing []string
	for _, name := range names {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || info.Size() == 0 {
			missing = append(missing, name)
		}
	}
	return missing
}

func runOneShot(cfg *config.Config, question string) {
	fmt.Println("Loading model...")

	resolver := model.NewResolver(cfg.Models, hardware.NewProbe())
	portalAssistant := assistant.New(resolver, nil, cfg.Generation)
	defer portalAssistant.Close()

	if !portalAssistant.InitializeModel() {
		log.Fatal("Error: No model could be loaded; run with -fetch or check the model directories above")
	}

	status := portalAssistant.Status()
	fmt.Printf("✓ Loaded %s on %s\n\n", status.ModelID, status.Device)

	start := time.Now()
	answer := portalAssistant.GenerateResponse(question)

	fmt.Printf("Q: %s\n", question)
	fmt.Printf("A: %s\n", answer)
	fmt.Printf("\n(answered in %s)\n", time.Since(start).Round(time.Millisecond))
}
