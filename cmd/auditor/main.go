// Command auditor is the entry point of the facility compliance auditor.
package main

import (
	"github.com/huangsam/auditor/cmd"
	"github.com/huangsam/auditor/internal/contract"
	"github.com/huangsam/auditor/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)

	err := cmd.Execute()
	if perr := cmd.StopProfiling(); perr != nil {
		contract.LogWarn("Failed to stop profiling", perr)
	}
	iocache.CloseStores()
	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
