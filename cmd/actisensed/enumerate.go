package main

import (
	"fmt"

	"github.com/actisense/ngt-client/internal/transport"
	"github.com/spf13/cobra"
)

func newEnumerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "enumerate",
		Short: "List local serial devices that plausibly host a gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := transport.EnumerateSerialDevices()
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				fmt.Println("no serial devices found")
				return nil
			}
			for _, d := range devices {
				fmt.Println(d)
			}
			return nil
		},
	}
}
