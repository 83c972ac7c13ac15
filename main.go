package main

import "github.com/finchkv/finch/cmd"

func main() {
	cmd.Execute()
}
