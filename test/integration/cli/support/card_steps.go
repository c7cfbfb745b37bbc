package support

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MeKo-Tech/cardpanda/internal/cards"
	"github.com/cucumber/godog"
	"github.com/makiuchi-d/gozxing"
)

// aCardExists adds a card through the CLI and remembers its ID, so later
// steps can refer to it as {id:NAME}.
func (testCtx *TestContext) aCardExists(name, payload, typ string) error {
	cmd := fmt.Sprintf("cardpanda card add --name %s --payload %s --type %s --format json", name, payload, typ)
	if err := testCtx.iRunCommand(cmd); err != nil {
		return err
	}
	if err := testCtx.theCommandShouldSucceed(); err != nil {
		return err
	}
	return testCtx.rememberCardID(name, []byte(testCtx.LastStdout))
}

// rememberCardID stores the id of a JSON card record under name.
func (testCtx *TestContext) rememberCardID(name string, doc []byte) error {
	var rec cards.Record
	if err := json.Unmarshal(doc, &rec); err != nil {
		return fmt.Errorf("card output is not a record: %w\n%s", err, doc)
	}
	if rec.ID == "" {
		return fmt.Errorf("card record has no id: %s", doc)
	}
	testCtx.CardIDs[name] = rec.ID
	return nil
}

// theStoreShouldContainCards opens the scenario's store file directly.
func (testCtx *TestContext) theStoreShouldContainCards(n int) error {
	store, err := cards.OpenFileStore(testCtx.StorePath())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	list, err := store.List(context.Background())
	if err != nil {
		return err
	}
	if len(list) != n {
		return fmt.Errorf("store holds %d card(s), want %d", len(list), n)
	}
	return nil
}

// theStoredCardShouldHaveType checks a remembered card's persisted type.
func (testCtx *TestContext) theStoredCardShouldHaveType(name, typ string) error {
	id, ok := testCtx.CardIDs[name]
	if !ok {
		return fmt.Errorf("no card named %q was created", name)
	}
	store, err := cards.OpenFileStore(testCtx.StorePath())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	rec, err := store.Get(context.Background(), id)
	if err != nil {
		return err
	}
	if got := rec.Type.String(); got != typ {
		return fmt.Errorf("card %q has type %s, want %s", name, got, typ)
	}
	return nil
}

// thePNGShouldScanAs decodes a rendered file with a reference reader.
func (testCtx *TestContext) thePNGShouldScanAs(name, symbology, text string) error {
	return scanFileAs(testCtx.Path(name), symbology, text)
}

func zxingFormat(symbology string) (gozxing.BarcodeFormat, error) {
	switch symbology {
	case "QR":
		return gozxing.BarcodeFormat_QR_CODE, nil
	case "Code 128":
		return gozxing.BarcodeFormat_CODE_128, nil
	default:
		return 0, fmt.Errorf("no reader for %q", symbology)
	}
}

// RegisterCardSteps registers card store and rendered image steps.
func (testCtx *TestContext) RegisterCardSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a card "([^"]*)" with payload "([^"]*)" and type "([^"]*)"$`, testCtx.aCardExists)
	sc.Step(`^the store should contain (\d+) cards?$`, testCtx.theStoreShouldContainCards)
	sc.Step(`^the stored card "([^"]*)" should have type "([^"]*)"$`, testCtx.theStoredCardShouldHaveType)
	sc.Step(`^the file "([^"]*)" should scan as (QR|Code 128) "([^"]*)"$`, testCtx.thePNGShouldScanAs)
}
