package main

import "github.com/oshokin/cassandra-bootstrap/cmd/cassandra-bootstrap/cmd"

func main() {
	cmd.Execute()
}
