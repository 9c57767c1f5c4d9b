package fuzztests

import "testing"

// maxFuzzInput bounds inputs so pathological nesting stays cheap.
const maxFuzzInput = 16 << 10

var typeSeeds = []string{
	"System.Int32",
	"[System.Private.CoreLib]System.Int32",
	"[mscorlib]System.Collections.Generic.List<[mscorlib]System.Int32>",
	"[A]N.Pair<[A]N.X,[A]N.Y[]>",
	"[A]N.Outer<!0,!1>[][]",
	"!0",
	"void",
	"[A]N.Broken<",
	"[A",
	"N.T<>",
}

var requestSeeds = []string{
	"module: App\nrequests:\n  - kind: type\n    type: \"[A]N.T\"\n",
	"module: App\nrequests:\n  - id: c\n    kind: ctor\n    type: \"[A]N.List\"\n    of: [\"[A]N.X\"]\n    count: 1\n",
	"module: App\nrequests:\n  - kind: getter\n    type: \"[A]N.T\"\n    name: Count\n    flatten: true\n    returns: \"[A]N.Int32\"\n",
	"module: App\nrequests:\n  - kind: method\n    type: \"[A]N.T\"\n    params: [\"[A]N.X\"]\n    count: 1\n",
	"requests: []\n",
	"module: [\n",
}

var imageSeeds = []string{
	"name = \"A\"\nversion = \"v1.0.0\"\n[[types]]\nnamespace = \"N\"\nname = \"T\"\n",
	"name = \"A\"\n[[types]]\nnamespace = \"N\"\nname = \"L\"\ngeneric = [\"T\"]\n  [[types.methods]]\n  name = \".ctor\"\n    [[types.methods.params]]\n    type = \"!0\"\n",
	"name = \"A\"\n[[forwarders]]\nnamespace = \"N\"\nname = \"T\"\nscope = \"B\"\n",
	"name = \"A\"\nversion = \"one\"\n",
	"schema = 99\nname = \"A\"\n",
	"name = \"A\"\nbogus = 1\n",
}

func addSeeds(f *testing.F, seeds []string) {
	for _, s := range seeds {
		f.Add([]byte(s))
	}
}

func clip(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}
