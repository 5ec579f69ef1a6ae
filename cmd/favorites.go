package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tabarek/iptvctl/store"
)

var favoriteKind string

// favoritesCmd represents the favorites command group
var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Manage favorite channels, movies, and series",
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add an item to favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := favoriteKindArg()
		if err != nil {
			return err
		}
		if err := service.AddFavorite(kind, args[0]); err != nil {
			return err
		}
		fmt.Printf("Added %s to %s favorites.\n", args[0], kind)
		return nil
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove an item from favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := favoriteKindArg()
		if err != nil {
			return err
		}
		if err := service.RemoveFavorite(kind, args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s from %s favorites.\n", args[0], kind)
		return nil
	},
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := favoriteKindArg()
		if err != nil {
			return err
		}
		ids, err := service.Favorites(kind)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Printf("No %s favorites.\n", kind)
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

func init() {
	favoritesCmd.PersistentFlags().StringVarP(&favoriteKind, "type", "t", "live", "content type (live/movie/series)")

	favoritesCmd.AddCommand(favoritesAddCmd)
	favoritesCmd.AddCommand(favoritesRemoveCmd)
	favoritesCmd.AddCommand(favoritesListCmd)
	rootCmd.AddCommand(favoritesCmd)
}

func favoriteKindArg() (store.Kind, error) {
	switch favoriteKind {
	case "live":
		return store.KindLive, nil
	case "movie":
		return store.KindMovie, nil
	case "series":
		return store.KindSeries, nil
	default:
		return "", fmt.Errorf("invalid content type: %s (must be live, movie, or series)", favoriteKind)
	}
}
