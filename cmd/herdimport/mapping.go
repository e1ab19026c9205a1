package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/herdbook/internal/core"
)

func newMappingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Show or save the mapping preference of an entity type",
	}
	cmd.AddCommand(newMappingGetCmd(a), newMappingSetCmd(a))
	return cmd
}

func newMappingGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ENTITY",
		Short: "Print the saved mapping preference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			et, err := entityArg(args[0])
			if err != nil {
				return err
			}
			svc, closeStore, err := a.service(cmd.Context(), nil, false)
			if err != nil {
				return err
			}
			defer closeStore()

			p, ok, err := svc.GetMapping(cmd.Context(), et)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "no mapping saved for %s; columns are matched automatically\n", et)
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
}

func newMappingSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set ENTITY FILE",
		Short: "Save a mapping preference read from a JSON file (- for stdin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			et, err := entityArg(args[0])
			if err != nil {
				return err
			}
			var in io.Reader = cmd.InOrStdin()
			if args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var p core.MappingPreference
			dec := json.NewDecoder(in)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&p); err != nil {
				return fmt.Errorf("%w: %v", core.ErrInvalidMapping, err)
			}

			svc, closeStore, err := a.service(cmd.Context(), nil, false)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := svc.SaveMapping(cmd.Context(), et, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mapping saved for %s\n", et)
			return nil
		},
	}
}

func entityArg(s string) (core.EntityType, error) {
	et, err := core.ParseEntityType(s)
	if err != nil {
		return "", err
	}
	if et == "" {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownEntity, s)
	}
	return et, nil
}
