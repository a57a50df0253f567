package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func healthCMD() *cobra.Command {
	var withModel bool
	var health = &cobra.Command{
		Use:   "health",
		Short: "Probe the search backend and exit non-zero when it is down",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			healthy := true

			if a.backend.HealthCheck(cmd.Context()) {
				fmt.Fprintf(out, "search (%s): ok\n", a.cfg.Search.Backend)
			} else {
				fmt.Fprintf(out, "search (%s): unavailable\n", a.cfg.Search.Backend)
				healthy = false
			}

			if withModel {
				if a.ollama().HealthCheck(cmd.Context()) {
					fmt.Fprintln(out, "ollama: ok")
				} else {
					fmt.Fprintln(out, "ollama: unavailable")
					healthy = false
				}
			}

			if !healthy {
				return errors.New("unhealthy")
			}
			return nil
		},
	}
	health.Flags().BoolVar(&withModel, "ollama", true, "also probe the Ollama server")

	return health
}
