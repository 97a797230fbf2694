// Command ospfd runs the OSPF link-state routing daemon core.
package main

func main() {
	if err := Execute(); err != nil {
		exitf("ospfd: %v", err)
	}
}
