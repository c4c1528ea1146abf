// Command apc coordinates when a conversation escalates into a design session.
package main

func main() {
	Execute()
}
