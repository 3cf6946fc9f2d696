package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gopricer/internal/audit"
	"github.com/TimurManjosov/gopricer/internal/rules"
)

// clearValue removes an optional condition axis.
const clearValue = "none"

var (
	updateName     string
	updateBrackets []string
	updateStores   []string
	updateChannels []string
	updateRental   string
	updateBooking  string
	updateWeekdays []string
	updateOrigin   string
	updateUrgent   string
)

var updateCmd = &cobra.Command{
	Use:   "update <rule-id>",
	Short: "Edit the name and conditions of a rule",
	Long: `Edit an existing rule. Only the flags given are changed; everything else,
including priority, status and prices, is kept.

List flags replace the whole list; pass an empty value (--stores=) to match
every store or channel. Date windows, origin and urgency accept "none" to
remove the constraint.

Examples:
  pricer update summer_promo --name "Summer promo" --rental 2025-07-01..2025-08-31
  pricer update summer_promo --weekdays sat,sun --origin exclude:US,CA
  pricer update summer_promo --booking none --urgent true --stores=`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadRules()
		if err != nil {
			return err
		}
		before := ruleByID(doc.Rules, args[0])
		if before == nil {
			return fmt.Errorf("%w: %q", rules.ErrRuleNotFound, args[0])
		}

		edited := before.Clone()
		if err := applyUpdate(cmd, &edited); err != nil {
			return err
		}
		if doc.Rules, err = rules.Replace(doc.Rules, edited); err != nil {
			return err
		}

		if err := saveRules(doc); err != nil {
			return err
		}
		recordEdit(cmd.Context(), audit.ActionUpdated, before, ruleByID(doc.Rules, edited.ID))
		return printRules(cmd, doc)
	},
}

// applyUpdate copies every flag the user set onto r.
func applyUpdate(cmd *cobra.Command, r *rules.PricingRule) error {
	flags := cmd.Flags()
	c := &r.Conditions

	if flags.Changed("name") {
		r.Name = updateName
	}
	if flags.Changed("brackets") {
		c.RentalDurationBrackets = nil
		for _, s := range updateBrackets {
			b, err := parseBracket(s)
			if err != nil {
				return err
			}
			c.RentalDurationBrackets = append(c.RentalDurationBrackets, b)
		}
	}
	if flags.Changed("stores") {
		c.ApplicableStores = updateStores
	}
	if flags.Changed("channels") {
		c.SourceChannels = updateChannels
	}

	for _, w := range []struct {
		flag, value string
		dst         **rules.DateRange
	}{
		{"rental", updateRental, &c.RentalDateRange},
		{"booking", updateBooking, &c.BookingDateRange},
	} {
		if !flags.Changed(w.flag) {
			continue
		}
		if strings.EqualFold(w.value, clearValue) {
			*w.dst = nil
			continue
		}
		rng, err := parseDateRange(w.value)
		if err != nil {
			return fmt.Errorf("--%s: %w", w.flag, err)
		}
		*w.dst = &rng
	}

	if flags.Changed("weekdays") {
		c.RentalDaysOfWeek = nil
		for _, s := range updateWeekdays {
			wd, err := parseWeekday(s)
			if err != nil {
				return err
			}
			c.RentalDaysOfWeek = append(c.RentalDaysOfWeek, wd)
		}
	}
	if flags.Changed("origin") {
		origin, err := parseOrigin(updateOrigin)
		if err != nil {
			return err
		}
		c.CustomerOrigin = origin
	}
	if flags.Changed("urgent") {
		switch strings.ToLower(updateUrgent) {
		case "any", clearValue:
			c.IsUrgent = nil
		default:
			v, err := strconv.ParseBool(updateUrgent)
			if err != nil {
				return fmt.Errorf("--urgent must be true, false or any, got %q", updateUrgent)
			}
			c.IsUrgent = &v
		}
	}
	return nil
}

// parseWeekday accepts 0..6 (0 = Sunday) or an English day name, full or
// abbreviated to three letters.
func parseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		return time.Weekday(n), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", rules.ErrInvalidWeekday, s)
}

// parseOrigin accepts "include:HK,JP", "exclude:US" or "none".
func parseOrigin(s string) (*rules.CustomerOrigin, error) {
	if strings.EqualFold(strings.TrimSpace(s), clearValue) {
		return nil, nil
	}
	mode, list, found := strings.Cut(s, ":")
	if !found {
		return nil, fmt.Errorf("%w: %q, want include:CODES or exclude:CODES", rules.ErrInvalidOrigin, s)
	}
	origin := &rules.CustomerOrigin{}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "include":
		origin.Condition = rules.OriginInclude
	case "exclude":
		origin.Condition = rules.OriginExclude
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", rules.ErrInvalidOrigin, mode)
	}
	for _, code := range strings.Split(list, ",") {
		if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
			origin.Countries = append(origin.Countries, code)
		}
	}
	return origin, nil
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().StringVar(&updateName, "name", "", "Rule name")
	updateCmd.Flags().StringSliceVar(&updateBrackets, "brackets", nil, "Duration brackets, e.g. 1,2-5,6-15")
	updateCmd.Flags().StringSliceVar(&updateStores, "stores", nil, "Applicable store ids (empty = all)")
	updateCmd.Flags().StringSliceVar(&updateChannels, "channels", nil, "Source channel ids (empty = all)")
	updateCmd.Flags().StringVar(&updateRental, "rental", "", "Rental date window START..END, or none")
	updateCmd.Flags().StringVar(&updateBooking, "booking", "", "Booking date window START..END, or none")
	updateCmd.Flags().StringSliceVar(&updateWeekdays, "weekdays", nil, "Allowed rental weekdays, e.g. sat,sun or 6,0 (empty = all)")
	updateCmd.Flags().StringVar(&updateOrigin, "origin", "", "Customer origin, include:CODES, exclude:CODES or none")
	updateCmd.Flags().StringVar(&updateUrgent, "urgent", "", "Urgency the rule requires: true, false or any")
}
