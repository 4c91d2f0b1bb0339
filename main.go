package main

import "github.com/renal-diet-poc/server/cmd"

func main() {
	cmd.Execute()
}
