package main

import "github.com/KaramelBytes/enrolpulse/cmd"

func main() {
	cmd.Execute()
}
