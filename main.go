package main

import "namesilo-dns01/cmd"

func main() {
	cmd.Execute()
}
