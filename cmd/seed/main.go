// Seed fills the appointment store with demo bookings for local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"

	"github.com/physiohome/booking-platform/internal/app/bootstrap"
	"github.com/physiohome/booking-platform/internal/appointments"
	appconfig "github.com/physiohome/booking-platform/internal/config"
	"github.com/physiohome/booking-platform/internal/roster"
	"github.com/physiohome/booking-platform/pkg/logging"
)

var issues = []string{
	"lower back pain after lifting",
	"knee pain when climbing stairs",
	"shoulder stiffness from desk work",
	"recovering from ankle sprain playing cricket",
	"weakness on the left side after a stroke",
	"shortness of breath on short walks",
}

var suggestions = []string{
	"Orthopedic", "Sports", "Neurological", "Cardiopulmonary", "",
}

func main() {
	_ = godotenv.Load()

	count := flag.Int("count", 10, "number of demo bookings to create")
	email := flag.String("email", "", "book everything under one email instead of random ones")
	flag.Parse()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel, "text")
	ctx := context.Background()

	rdb := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	store, err := bootstrap.BuildStore(ctx, cfg, rdb, logger)
	if err != nil {
		log.Fatalf("build store: %v", err)
	}

	svc := appointments.NewService(store, roster.NewResolver(nil), logger)

	for i := 0; i < *count; i++ {
		to := *email
		if to == "" {
			to = gofakeit.Email()
		}
		visit := time.Now().AddDate(0, 0, gofakeit.Number(1, 21))

		req := appointments.BookingRequest{
			Name:               gofakeit.Name(),
			Email:              to,
			Phone:              gofakeit.Phone(),
			Address:            gofakeit.Street() + ", Lucknow",
			Date:               visit.Format("2006-01-02"),
			Time:               fmt.Sprintf("%d:00 %s", gofakeit.Number(1, 11), gofakeit.RandomString([]string{"AM", "PM"})),
			Issue:              gofakeit.RandomString(issues),
			SuggestedSpecialty: gofakeit.RandomString(suggestions),
		}

		appt, assignment, err := svc.CreateBooking(ctx, req)
		if err != nil {
			log.Fatalf("seed booking %d: %v", i+1, err)
		}
		fmt.Printf("booked %s for %s with %s (matched=%v)\n",
			appt.ID, appt.Email, appt.TherapistName, assignment.Matched)
	}
}
