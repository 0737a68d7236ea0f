package main

import "github.com/vibast-solutions/ms-go-social-auth/cmd"

func main() {
	cmd.Execute()
}
