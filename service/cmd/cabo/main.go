// cmd/cabo/main.go
package main

func main() {
	Execute()
}
