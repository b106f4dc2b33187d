package hclcfg

import "github.com/hashicorp/hcl/v2"

// --- HCL file structures ---
//
// A pipeline file looks like:
//
//	pipeline "ci" {
//	  environment = { CI = "true" }
//
//	  matrix {
//	    axis "os"     { values = ["linux", "macos"] }
//	    axis "python" { values = ["3.10", "3.12"] }
//	  }
//
//	  step "shell" "install" {
//	    continue_session = true
//	    arguments { command = "pip install ." }
//	  }
//
//	  step "shell" "report" {
//	    run_if = outcome.test == "success"
//	    arguments { command = "coverage xml" }
//	  }
//
//	  publish {
//	    when     = matrix.os == "linux" && matrix.python == "3.12"
//	    artifact = "coverage.xml"
//	    url      = "https://reports.example.com/upload"
//	  }
//	}

// root is the top-level structure of a pipeline file.
type root struct {
	Pipelines []*pipelineBlock `hcl:"pipeline,block"`
}

// pipelineBlock is a `pipeline` block.
type pipelineBlock struct {
	Name        string            `hcl:"name,label"`
	Workdir     string            `hcl:"workdir,optional"`
	Environment map[string]string `hcl:"environment,optional"`
	Matrix      *matrixBlock      `hcl:"matrix,block"`
	Steps       []*stepBlock      `hcl:"step,block"`
	Publish     *publishBlock     `hcl:"publish,block"`
}

// matrixBlock declares the build matrix axes, in declaration order.
type matrixBlock struct {
	Axes []*axisBlock `hcl:"axis,block"`
}

// axisBlock is one named matrix dimension.
type axisBlock struct {
	Name   string   `hcl:"name,label"`
	Values []string `hcl:"values"`
}

// stepBlock is one `step` block. The expressions are captured unevaluated;
// the engine evaluates them per job.
type stepBlock struct {
	Action          string          `hcl:"action,label"`
	Name            string          `hcl:"name,label"`
	RunIf           hcl.Expression  `hcl:"run_if,optional"`
	ContinueSession bool            `hcl:"continue_session,optional"`
	Arguments       *argumentsBlock `hcl:"arguments,block"`
}

// argumentsBlock carries the action's raw argument attributes.
type argumentsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// publishBlock is the publication rule.
type publishBlock struct {
	When     hcl.Expression `hcl:"when"`
	Artifact hcl.Expression `hcl:"artifact"`
	URL      string         `hcl:"url"`
	Fatal    *bool          `hcl:"fatal,optional"`
}
