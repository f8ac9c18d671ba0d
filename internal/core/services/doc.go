// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// IndexService runs the offline build. RetrieverService and AssistantService
// serve queries: the assistant routes each input through the session state
// machine and answers questions from retrieved passages only.
package services
