// Package main seeds a demo organization tree into the configured document
// store for local development.
package main

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/api/option"

	"github.com/velopreem/backend/config"
	"github.com/velopreem/backend/internal/datastore"
	"github.com/velopreem/backend/internal/docstore"
	"github.com/velopreem/backend/internal/docstore/firestoredb"
	"github.com/velopreem/backend/internal/docstore/memstore"
	"github.com/velopreem/backend/internal/models"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("docstore", zap.Error(err))
	}
	defer store.Close()

	if err := seed(ctx, store, logger); err != nil {
		logger.Fatal("seed", zap.Error(err))
	}
	logger.Info("seed complete")
}

func seed(ctx context.Context, store docstore.Store, logger *zap.Logger) error {
	repo := datastore.New(store, logger)

	uid := "demo-organizer"
	userRef := models.DocRef{ID: uid, Path: "users/" + uid}
	now := time.Now().UTC()

	// Seed the organizer directly; the normal create path would demand a
	// registration flow.
	err := store.Set(ctx, userRef.Path, map[string]any{
		"id":            uid,
		"path":          userRef.Path,
		"name":          "Demo Organizer",
		"email":         "organizer@example.com",
		"termsAccepted": true,
		"metadata":      models.NewMetadata(now, userRef).Map(),
	})
	if err != nil {
		return err
	}
	caller := datastore.Identity{UID: uid, Email: "organizer@example.com"}

	org, err := repo.CreateOrganization(ctx, datastore.NewOrganization{
		Name:    "Super Sprinkles Racing",
		Website: "https://supersprinkles.example.com",
	}, caller)
	if err != nil {
		return err
	}

	seriesStart := date(2025, time.March, 1)
	seriesEnd := date(2025, time.October, 31)
	series, err := repo.CreateSeries(ctx, org.Path, datastore.NewSeries{
		Name:      "Sprinkles Crit Series 2025",
		Location:  "San Francisco, CA",
		Timezone:  "America/Los_Angeles",
		StartDate: &seriesStart,
		EndDate:   &seriesEnd,
	}, caller)
	if err != nil {
		return err
	}

	eventStart := date(2025, time.July, 12)
	eventEnd := date(2025, time.July, 13)
	event, err := repo.CreateEvent(ctx, series.Path, datastore.NewEvent{
		Name:      "Giro di San Francisco",
		Location:  "North Beach",
		Timezone:  "America/Los_Angeles",
		StartDate: &eventStart,
		EndDate:   &eventEnd,
	}, caller)
	if err != nil {
		return err
	}

	raceStart := eventStart.Add(16 * time.Hour)
	raceEnd := raceStart.Add(time.Hour)
	race, err := repo.CreateRace(ctx, event.Path, datastore.NewRace{
		Name:      "Masters Women 40+",
		Category:  "Masters",
		Gender:    "Women",
		MaxRacers: 75,
		Laps:      25,
		Podiums:   3,
		StartDate: &raceStart,
		EndDate:   &raceEnd,
	}, caller)
	if err != nil {
		return err
	}

	_, err = repo.CreatePreem(ctx, race.Path, datastore.NewPreem{
		Name:             "First Lap Leader",
		Type:             models.PreemTypePooled,
		MinimumThreshold: 100,
	}, caller)
	if err != nil {
		return err
	}
	_, err = repo.CreatePreem(ctx, race.Path, datastore.NewPreem{
		Name: "Mid-Race Sprint",
		Type: models.PreemTypeOneShot,
	}, caller)
	return err
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (docstore.Store, error) {
	if cfg.Firestore.ProjectID == "" || cfg.Firestore.InMemory {
		logger.Info("using in-memory document store")
		return memstore.New(), nil
	}
	var opts []option.ClientOption
	if cfg.Firestore.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firestore.CredentialsFile))
	}
	return firestoredb.New(ctx, cfg.Firestore.ProjectID, logger, opts...)
}

func newLogger() *zap.Logger {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
