package main

import (
	"context"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/protokoll/internal/shared"
)

// ConfigInit writes the default configuration file. An existing file is left alone.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.writePlain("wrote %s\n", path)
	return nil
}

// ConfigShow prints the configuration after file, environment and flags were applied.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	return toml.NewEncoder(r.output).Encode(r.config)
}
