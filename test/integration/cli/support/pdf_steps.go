package support

import (
	"fmt"
	"os"

	"github.com/cucumber/godog"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// thePDFShouldHavePages counts pages of an exported document.
func (testCtx *TestContext) thePDFShouldHavePages(name string, pages int) error {
	n, err := api.PageCountFile(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if n != pages {
		return fmt.Errorf("%s has %d page(s), want %d", name, n, pages)
	}
	return nil
}

// theResponsePDFShouldHavePages counts pages of a downloaded document.
func (testCtx *TestContext) theResponsePDFShouldHavePages(pages int) error {
	path := testCtx.Path("response.pdf")
	if err := os.WriteFile(path, testCtx.LastHTTPBody, 0o600); err != nil {
		return err
	}
	return testCtx.thePDFShouldHavePages(path, pages)
}

// RegisterPDFSteps registers export steps.
func (testCtx *TestContext) RegisterPDFSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the PDF "([^"]*)" should have (\d+) pages?$`, testCtx.thePDFShouldHavePages)
	sc.Step(`^the response PDF should have (\d+) pages?$`, testCtx.theResponsePDFShouldHavePages)
}
