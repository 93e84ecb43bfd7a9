package main

import "github.com/KaramelBytes/qdata-clean/cmd"

func main() {
	cmd.Execute()
}
