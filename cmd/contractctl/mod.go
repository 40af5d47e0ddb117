// Package main implements a small utility to inspect contracts and block
// stores without running a node.
package main

import (
	"fmt"
	"os"

	"github.com/meridian-network/meridian/core/blockstore"
	"github.com/meridian-network/meridian/core/contract"
	urfave "github.com/urfave/cli/v2"
)

func main() {
	app := makeApp(os.Stdout)

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func makeApp(out *os.File) *urfave.App {
	return &urfave.App{
		Name:  "contractctl",
		Usage: "inspect contracts and block stores",
		Commands: []*urfave.Command{
			{
				Name:      "parse",
				Usage:     "parse a legacy contract message",
				ArgsUsage: "<message>",
				Action: func(c *urfave.Context) error {
					return parseAction(out, c.Args().First())
				},
			},
			{
				Name:      "route",
				Usage:     "show the handler serving a contract type",
				ArgsUsage: "<type>",
				Action: func(c *urfave.Context) error {
					return routeAction(out, c.Args().First())
				},
			},
			{
				Name:      "heights",
				Usage:     "list the block heights of a store",
				ArgsUsage: "<path>",
				Action: func(c *urfave.Context) error {
					return heightsAction(out, c.Args().First())
				},
			},
		},
	}
}

func parseAction(out *os.File, message string) error {
	if !contract.Detect(message) {
		return urfave.Exit("no contract detected in message", 1)
	}

	parsed := contract.Parse(message)
	payload := parsed.Body.AssumeLegacy()

	fmt.Fprintf(out, "version: %d\n", parsed.Version)
	fmt.Fprintf(out, "type: %s\n", parsed.Type)
	fmt.Fprintf(out, "action: %s\n", parsed.Action)
	fmt.Fprintf(out, "key: %s\n", payload.LegacyKeyString())
	fmt.Fprintf(out, "value: %s\n", payload.LegacyValueString())
	fmt.Fprintf(out, "well-formed: %v\n", parsed.WellFormed())

	return nil
}

func routeAction(out *os.File, input string) error {
	t := contract.ParseType(input)

	var handler string
	switch t {
	case contract.TypeBeacon:
		handler = "beacon registry"
	case contract.TypePoll, contract.TypeVote:
		handler = "poll registry"
	case contract.TypeProject:
		handler = "project whitelist"
	case contract.TypeProtocol, contract.TypeScraper:
		handler = "application cache"
	default:
		handler = "unknown-type handler"
	}

	fmt.Fprintf(out, "%s -> %s\n", t, handler)

	return nil
}

func heightsAction(out *os.File, path string) error {
	store, err := blockstore.New(path)
	if err != nil {
		return err
	}

	defer store.Close()

	heights, err := store.Heights()
	if err != nil {
		return err
	}

	for _, height := range heights {
		fmt.Fprintln(out, height)
	}

	return nil
}
