package main

import "github.com/beyondborders/donation-service/cmd"

func main() {
	cmd.Execute()
}
