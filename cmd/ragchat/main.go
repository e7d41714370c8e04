package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "ragchat"}

	root.AddCommand(serveCMD(), migrateCMD(), indexCMD(), tokenCMD())
	_ = root.Execute()
}
