package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tabarek/iptvctl/epg"
)

var upcomingHours int

// epgCmd represents the epg command group
var epgCmd = &cobra.Command{
	Use:   "epg",
	Short: "Query the program guide",
}

// epgNowCmd represents the epg now command
var epgNowCmd = &cobra.Command{
	Use:   "now <channel-id>",
	Short: "Show the current and next program on a channel",
	Args:  cobra.ExactArgs(1),
	RunE:  runEPGNow,
}

// epgUpcomingCmd represents the epg upcoming command
var epgUpcomingCmd = &cobra.Command{
	Use:   "upcoming <channel-id>",
	Short: "List programs starting within the next hours on a channel",
	Args:  cobra.ExactArgs(1),
	RunE:  runEPGUpcoming,
}

func init() {
	epgUpcomingCmd.Flags().IntVar(&upcomingHours, "hours", 24, "window size in hours")

	epgCmd.AddCommand(epgNowCmd)
	epgCmd.AddCommand(epgUpcomingCmd)
	rootCmd.AddCommand(epgCmd)
}

func runEPGNow(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	channelID := args[0]

	current, next, err := service.CurrentAndNext(ctx, channelID)
	if err != nil {
		return err
	}

	if current == nil {
		fmt.Printf("No guide data for %s right now.\n", channelID)
		return nil
	}

	fmt.Printf("Now:  %s\n", formatProgram(current))
	if current.Desc != "" {
		fmt.Printf("      %s\n", current.Desc)
	}
	if next != nil {
		fmt.Printf("Next: %s\n", formatProgram(next))
	}

	return nil
}

func runEPGUpcoming(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	channelID := args[0]

	programs, err := service.Upcoming(ctx, channelID, upcomingHours)
	if err != nil {
		return err
	}

	if len(programs) == 0 {
		fmt.Printf("Nothing scheduled on %s in the next %d hours.\n", channelID, upcomingHours)
		return nil
	}

	for _, program := range programs {
		fmt.Printf("• %s\n", formatProgram(&program))
	}

	return nil
}

func formatProgram(p *epg.Program) string {
	return fmt.Sprintf("%s–%s  %s",
		p.Start.Local().Format("15:04"),
		p.Stop.Local().Format("15:04"),
		p.Title)
}
