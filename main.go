/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/lgu-records/recordkeeper/cmd"

func main() {
	cmd.Execute()
}
