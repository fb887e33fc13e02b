// cmd/psyche/main.go
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"psyche/internal/actors"
	"psyche/internal/ai"
	"psyche/internal/config"
	"psyche/internal/dispatch"
	"psyche/internal/memory"
	"psyche/internal/needs"
	"psyche/internal/personality"
	"psyche/internal/scheduler"
	"psyche/internal/storage"
	"psyche/internal/world"
)

func main() {
	cfg := config.New()

	log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   cfg.MindLog,
		MaxSize:    5, // MB
		MaxBackups: 2,
	}))
	log.Println("[INFO] Psyche waking up...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(ctx, cfg.StoragePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	view, err := personality.Load(filepath.Join(cfg.DataRoot, "personality.json"))
	if err != nil {
		log.Fatal(err)
	}

	model := needs.New(needs.DefaultNeeds(view))
	if saved, err := store.LoadNeeds(); err != nil {
		log.Printf("[WARN] needs snapshot unreadable: %v", err)
	} else if saved != nil {
		model.Restore(saved)
	}

	book := actors.NewBook()
	if saved, err := store.LoadActors(); err != nil {
		log.Printf("[WARN] actors snapshot unreadable: %v", err)
	} else if saved != nil {
		book.Restore(saved)
	}

	wld := world.Default()
	if saved, err := store.LoadWorld(); err != nil {
		log.Printf("[WARN] world snapshot unreadable: %v", err)
	} else if saved != nil {
		wld.Restore(*saved)
	}

	provider, err := ai.New(cfg.AIProvider)
	if err != nil {
		log.Fatal(err)
	}

	ledger := dispatch.NewLedger(
		dispatch.NewTierBudget(scheduler.TierDeep, cfg.DeepRefillPerMin, cfg.DeepBurst),
		dispatch.NewTierBudget(scheduler.TierCheap, cfg.CheapRefillPerMin, cfg.CheapBurst),
	)

	loop, err := scheduler.NewLoop(scheduler.Deps{
		Needs:            model,
		Book:             book,
		World:            wld,
		Recorder:         memory.NewRecorder(cfg.DataRoot),
		Journal:          memory.NewJournal(filepath.Join(cfg.DataRoot, "journal.txt")),
		Emitter:          scheduler.NewFileEmitter(cfg.OutputFile),
		Provider:         provider,
		Ledger:           ledger,
		Store:            store,
		Beat:             cfg.BeatInterval,
		ConsolidateAfter: cfg.ConsolidateAfter,
	})
	if err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()
	go scheduler.WatchInputFile(ctx, cfg.InputFile, "operator", loop.Post)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	s := <-sig
	log.Printf("[INFO] Received signal %s, shutting down...", s)
	cancel()
	<-done

	log.Println("[INFO] Psyche asleep")
}
