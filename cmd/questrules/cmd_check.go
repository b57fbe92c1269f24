package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nathoo/questrules/engine"
	"github.com/nathoo/questrules/loader"
	"github.com/nathoo/questrules/storage/sqlite"
)

var errCheckFailed = errors.New("package check failed")

var checkCmd = &cobra.Command{
	Use:   "check [root]",
	Short: "Validate packages without starting the console",
	Long: `Loads every package and builds every definition. Warnings are
printed; any definition that fails to build makes the command exit non-zero.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

var holdersCmd = &cobra.Command{
	Use:   "holders [objective]",
	Short: "List stored actors, or the actors holding an objective",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHolders,
}

func runCheck(cmd *cobra.Command, args []string) error {
	if err := initLogger(""); err != nil {
		return err
	}
	root := cfg.Packages
	if len(args) == 1 {
		root = args[0]
	}

	res, err := loader.Load(root)
	var ve *loader.ValidationError
	if errors.As(err, &ve) {
		for _, e := range ve.Errors {
			fmt.Printf("ERROR: %v\n", e)
		}
		return errCheckFailed
	}
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Printf("WARN: %s\n", w)
	}

	eng := engine.New(engine.Options{Logger: logger})
	errs := eng.Load(res.Packages)
	for _, e := range errs {
		fmt.Printf("ERROR: %v\n", e)
	}
	fmt.Printf("%d package(s), %d objective(s)\n", len(res.Packages), len(eng.Objectives.Names()))
	if len(errs) > 0 {
		return errCheckFailed
	}
	return nil
}

func runHolders(cmd *cobra.Command, args []string) error {
	if err := initLogger(""); err != nil {
		return err
	}
	store, err := sqlite.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	var actors []string
	if len(args) == 1 {
		actors, err = store.Holders(ctx, args[0])
	} else {
		actors, err = store.Actors(ctx)
	}
	if err != nil {
		return err
	}
	for _, a := range actors {
		fmt.Println(a)
	}
	return nil
}
