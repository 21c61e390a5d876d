// Command pdfbrowse inspects the object graph of a PDF file.
package main

import "github.com/tsawler/pdfbrowse/cmd/pdfbrowse/cmd"

func main() {
	cmd.Execute()
}
