// Command voucherctl provides operator helpers for the voucher service:
// minting dev tokens and inspecting issued vouchers offline.
package main

import "os"

func main() {
	os.Exit(execute())
}
