package main

import "inventory-service/cmd"

func main() {
	cmd.Execute()
}
