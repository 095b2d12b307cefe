package main

import "github.com/jobportal/apiserver/cmd"

func main() {
	cmd.Execute()
}
