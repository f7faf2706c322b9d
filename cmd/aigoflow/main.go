// Command aigoflow runs node-graph flows and chains of flows from JSON or
// YAML definitions, or serves them over HTTP.
package main

import (
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	Execute()
}
