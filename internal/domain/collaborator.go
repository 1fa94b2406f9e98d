package domain

// Collaborator representa um colaborador que retira e devolve materiais.
// IDFun é a chave funcional de negócio (matrícula), distinta do ID interno.
type Collaborator struct {
	ID           string `json:"id,omitempty"`
	IDFun        string `json:"id_fun"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Contract     string `json:"contract"`
	IsAlmoxarife bool   `json:"is_almoxarife,omitempty"`
	// Active implementa a exclusão lógica: o colaborador some das listagens,
	// mas permanece consultável para manter a integridade do histórico.
	Active bool `json:"active"`
}

// CollaboratorRepository define o contrato de persistência para colaboradores.
type CollaboratorRepository interface {
	Save(ctx Context, collaborator Collaborator) (Collaborator, error)
	FindByIDFun(ctx Context, idFun string) (Collaborator, error)
	FindAllActive(ctx Context) ([]Collaborator, error)
	Update(ctx Context, collaborator Collaborator) error
	Deactivate(ctx Context, idFun string) error
}
