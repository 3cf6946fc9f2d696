package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gopricer/internal/engine"
	"github.com/TimurManjosov/gopricer/internal/rules"
)

// bookingFlags are the facts of a prospective rental shared by quote and explain.
type bookingFlags struct {
	store, channel, country string
	pickup, dropoff, booked string
	days                    int
	urgent                  bool
}

func (b *bookingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&b.store, "store", "", "Pickup store id")
	cmd.Flags().StringVar(&b.channel, "channel", "", "Sales channel id")
	cmd.Flags().StringVar(&b.country, "country", "", "Customer country code")
	cmd.Flags().StringVar(&b.pickup, "pickup", "", "Pickup date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&b.dropoff, "return", "", "Return date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&b.booked, "booked", "", "Booking date (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&b.days, "days", 0, "Rental length in days (default derived from pickup and return)")
	cmd.Flags().BoolVar(&b.urgent, "urgent", false, "Booking is urgent")
}

func (b *bookingFlags) context() (engine.BookingContext, error) {
	ctx := engine.BookingContext{
		StoreID:      b.store,
		ChannelID:    b.channel,
		Country:      b.country,
		DurationDays: b.days,
		Urgent:       b.urgent,
		BookingDate:  rules.DateOf(now(), loc),
	}
	if b.days < 0 {
		return ctx, fmt.Errorf("--days must not be negative, got %d", b.days)
	}

	for _, f := range []struct {
		name, value string
		dst         *rules.Date
	}{
		{"pickup", b.pickup, &ctx.RentalStart},
		{"return", b.dropoff, &ctx.RentalEnd},
		{"booked", b.booked, &ctx.BookingDate},
	} {
		if f.value == "" {
			continue
		}
		d, err := rules.ParseDate(f.value)
		if err != nil {
			return ctx, fmt.Errorf("--%s: %w", f.name, err)
		}
		*f.dst = d
	}

	if !ctx.RentalEnd.IsZero() && ctx.RentalEnd.Before(ctx.RentalStart) {
		return ctx, fmt.Errorf("--return %s is before --pickup %s", ctx.RentalEnd, ctx.RentalStart)
	}
	if span := ctx.DateSpan(); b.days > 0 && span > 0 && span != b.days {
		logger.Warn().Int("days", b.days).Int("date_span", span).
			Msg("--days disagrees with pickup and return, pricing by --days")
	}
	return ctx, nil
}
