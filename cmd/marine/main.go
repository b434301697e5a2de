package main

import (
	"fmt"
	"os"
)

func main() {
	if err := RootCommand.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
