package main

import "github.com/heronhoga/bars-fe/cmd"

func main() {
	cmd.Execute()
}
