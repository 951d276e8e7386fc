package main

import (
	"promptdir/internal/services"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Remove orphaned rows and recompute every stars average",
	Long: `Reconcile runs one orphan sweep (ratings and comments whose prompt is gone,
replies whose parent is gone) and then rebuilds the stars average of every prompt
from its ratings. It is safe to run while the server is up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, log, conn, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer log.Sync()
		defer closeDB(conn, log)

		r := services.NewReconciler(conn, log, nil)
		res, err := r.Sweep(ctx)
		if err != nil {
			return err
		}
		n, err := r.RecomputeAll(ctx)
		if err != nil {
			return err
		}
		log.Info("Reconcile finished",
			"orphan_ratings", res.Ratings,
			"orphan_comments", res.Comments,
			"orphan_replies", res.Replies,
			"prompts_recomputed", n)
		return nil
	},
}
