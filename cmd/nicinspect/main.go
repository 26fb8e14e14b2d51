package main

import "github.com/alibaba/nicinspect/pkg/nicinspect/cmd"

func main() {
	cmd.Execute()
}
