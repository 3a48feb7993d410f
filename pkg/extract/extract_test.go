package extract_test

import (
	"testing"

	"SalmaVoice/pkg/extract"
)

func TestCommandsFencedBlock(t *testing.T) {
	text := "تمام، سأضيفه الآن\n```json\n{\"page\": \"add_product\", \"ready\": true, \"product_name\": \"قهوة تركية\", \"weight\": \"1kg\"}\n```\nهل تريد شيئا آخر؟"

	cmds := extract.Commands(text)
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	if cmds[0].Page != "add_product" || !cmds[0].Ready {
		t.Fatalf("command = %+v", cmds[0])
	}
	if got := extract.StringValue(cmds[0].Raw, "product_name"); got != "قهوة تركية" {
		t.Fatalf("product_name = %q", got)
	}
}

func TestCommandsTwoObjectsInOneFence(t *testing.T) {
	text := "```json\n{\"page\": \"add_product\", \"ready\": true, \"product_name\": \"أ\"}\n{\"page\": \"add_product\", \"ready\": true, \"product_name\": \"ب\"}\n```"

	cmds := extract.Commands(text)
	if len(cmds) != 2 {
		t.Fatalf("got %d commands, want 2", len(cmds))
	}
	if extract.StringValue(cmds[0].Raw, "product_name") != "أ" ||
		extract.StringValue(cmds[1].Raw, "product_name") != "ب" {
		t.Fatalf("commands = %+v", cmds)
	}
}

func TestCommandsUnfencedObject(t *testing.T) {
	text := `سأنقلك الآن {"page": "transfers"} إلى صفحة التحويلات`

	cmds := extract.Commands(text)
	if len(cmds) != 1 || cmds[0].Page != "transfers" {
		t.Fatalf("commands = %+v", cmds)
	}
}

func TestCommandsIgnoresObjectsWithoutPage(t *testing.T) {
	text := `{"status": "ok"} {"page": "cart"}`

	cmds := extract.Commands(text)
	if len(cmds) != 1 || cmds[0].Page != "cart" {
		t.Fatalf("commands = %+v", cmds)
	}
}

func TestCommandsBracesInsideStrings(t *testing.T) {
	text := "```json\n{\"page\": \"cliq_review\", \"alias\": \"ab{cd}\", \"amount\": 12.5}\n```"

	cmds := extract.Commands(text)
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	if cmds[0].Alias != "ab{cd}" {
		t.Fatalf("alias = %q", cmds[0].Alias)
	}
	if cmds[0].Amount != "12.5" {
		t.Fatalf("amount = %q, numeric amounts must survive as text", cmds[0].Amount)
	}
}

func TestCommandsOrderBatchFallsBackToProducts(t *testing.T) {
	text := "```json\n{\"page\": \"order_batch\", \"checkout\": true, \"products\": [{\"product_name\": \"إسبرسو\", \"quantity\": 2}]}\n```"

	cmds := extract.Commands(text)
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	cmd := cmds[0]
	if !cmd.Checkout || len(cmd.Orders) != 1 {
		t.Fatalf("command = %+v", cmd)
	}
	if q, ok := extract.IntValue(cmd.Orders[0], "quantity"); !ok || q != 2 {
		t.Fatalf("quantity = %d ok=%v", q, ok)
	}
}

func TestCommandsNoBraces(t *testing.T) {
	if cmds := extract.Commands("أهلا وسهلا، كيف أساعدك؟"); cmds != nil {
		t.Fatalf("commands = %+v, want none", cmds)
	}
}

func TestCommandsMalformedFallback(t *testing.T) {
	// Broken outer text but one recoverable object between first { and last }.
	text := `json {"page": "language"}`
	cmds := extract.Commands(text)
	if len(cmds) != 1 || cmds[0].Page != "language" {
		t.Fatalf("commands = %+v", cmds)
	}
}
