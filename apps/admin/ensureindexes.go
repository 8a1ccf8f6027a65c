package main

import (
	"context"
	"fmt"

	"github.com/csbssync/portal/core"
)

func (cli *commandLine) ensureIndexes(ctx context.Context) error {
	if cli.conf.Database.Engine != core.EngineMongoDB {
		fmt.Printf("%s engine: no index to create\n", cli.conf.Database.Engine)
		return nil
	}
	if err := cli.repos.EnsureIndexes(ctx); err != nil {
		return err
	}
	fmt.Println("indexes created")
	return nil
}
