package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tabarek/iptvctl/filter"
	"github.com/tabarek/iptvctl/xtream"
)

var categoryType string

// categoriesCmd represents the categories command
var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories for live, VOD, or series content",
	RunE:  runCategories,
}

// streamsCmd represents the streams command
var streamsCmd = &cobra.Command{
	Use:   "streams",
	Short: "List live channels, optionally filtered",
	Long: `List live channels from the provider. Results can be narrowed with
--category and with a filter expression, e.g.:

  iptvctl streams --filter 'NameLower contains "news"'
  iptvctl streams --category 7 --filter 'Archive'`,
	RunE: runStreams,
}

// moviesCmd represents the movies command
var moviesCmd = &cobra.Command{
	Use:   "movies",
	Short: "List VOD movies, optionally filtered",
	RunE:  runMovies,
}

func init() {
	categoriesCmd.Flags().StringVarP(&categoryType, "type", "t", "live", "category type (live/vod/series)")

	streamsCmd.Flags().StringVarP(&categoryID, "category", "c", "", "restrict to a category id")
	streamsCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")

	moviesCmd.Flags().StringVarP(&categoryID, "category", "c", "", "restrict to a category id")
	moviesCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")

	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(streamsCmd)
	rootCmd.AddCommand(moviesCmd)
}

func runCategories(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	var (
		categories []xtream.Category
		err        error
	)
	switch categoryType {
	case "live":
		categories, err = service.LiveCategories(ctx)
	case "vod":
		categories, err = service.VODCategories(ctx)
	case "series":
		categories, err = service.SeriesCategories(ctx)
	default:
		return fmt.Errorf("invalid category type: %s (must be live, vod, or series)", categoryType)
	}
	if err != nil {
		return err
	}

	if len(categories) == 0 {
		fmt.Println("No categories found.")
		return nil
	}

	fmt.Printf("%-12s %s\n", "ID", "NAME")
	fmt.Println(strings.Repeat("-", 50))
	for _, category := range categories {
		fmt.Printf("%-12s %s\n", category.CategoryID, category.CategoryName)
	}

	return nil
}

func runStreams(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	streams, err := service.LiveStreams(ctx, categoryID)
	if err != nil {
		return err
	}

	var matcher *filter.Filter
	if filterExpr != "" {
		matcher, err = filter.Compile(filterExpr)
		if err != nil {
			return err
		}
	}

	shown := 0
	for _, stream := range streams {
		if matcher != nil {
			matched, err := matcher.Match(filter.StreamEnv(stream))
			if err != nil {
				return err
			}
			if !matched {
				continue
			}
		}

		fmt.Printf("• %s (id %d)", stream.Name, stream.StreamID)
		if stream.TVArchive == 1 {
			fmt.Printf(" [ARCHIVE]")
		}
		fmt.Println()
		shown++
	}

	if shown == 0 {
		fmt.Println("No streams found matching the criteria.")
	} else {
		fmt.Printf("\n%d streams.\n", shown)
	}

	return nil
}

func runMovies(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	movies, err := service.VODStreams(ctx, categoryID)
	if err != nil {
		return err
	}

	var matcher *filter.Filter
	if filterExpr != "" {
		matcher, err = filter.Compile(filterExpr)
		if err != nil {
			return err
		}
	}

	shown := 0
	for _, movie := range movies {
		if matcher != nil {
			matched, err := matcher.Match(filter.VODEnv(movie))
			if err != nil {
				return err
			}
			if !matched {
				continue
			}
		}

		fmt.Printf("• %s (id %d)", movie.Name, movie.StreamID)
		if movie.Rating5Based > 0 {
			fmt.Printf(" ★%.1f", movie.Rating5Based)
		}
		fmt.Println()
		shown++
	}

	if shown == 0 {
		fmt.Println("No movies found matching the criteria.")
	} else {
		fmt.Printf("\n%d movies.\n", shown)
	}

	return nil
}
