package assets

import _ "embed"

//go:embed system_instruction.md
var SystemInstruction string
